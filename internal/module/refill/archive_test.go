package refill

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/pixelmuse/server/internal/shared/config"
	"github.com/pixelmuse/server/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (p *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if p.err != nil {
		return nil, p.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	p.inputs = append(p.inputs, in)
	p.bodies = append(p.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Archiver_Archive(t *testing.T) {
	putter := &fakePutter{}
	archiver := newS3Archiver(putter, "reports", "sweeps")
	now := testutil.FixedNow()
	report := &Report{
		StartedAt:   now,
		FinishedAt:  now,
		RefillCount: 1,
		Results: []Result{{
			Phase:          PhaseAnnualRefill,
			SubscriptionID: uuid.New(),
			Status:         StatusActivated,
			CreditsAdded:   800,
		}},
	}

	require.NoError(t, archiver.Archive(context.Background(), report))
	require.Len(t, putter.inputs, 1)

	in := putter.inputs[0]
	assert.Equal(t, "reports", aws.ToString(in.Bucket))
	assert.Equal(t, "sweeps/2026/03/15/20260315T120000Z.json", aws.ToString(in.Key))
	assert.Equal(t, "application/json", aws.ToString(in.ContentType))
	assert.Equal(t, int64(len(putter.bodies[0])), aws.ToInt64(in.ContentLength))

	var decoded Report
	require.NoError(t, json.Unmarshal(putter.bodies[0], &decoded))
	assert.Equal(t, 1, decoded.RefillCount)
	require.Len(t, decoded.Results, 1)
	assert.Equal(t, int64(800), decoded.Results[0].CreditsAdded)
}

func TestS3Archiver_PutError(t *testing.T) {
	archiver := newS3Archiver(&fakePutter{err: errors.New("access denied")}, "reports", "")

	err := archiver.Archive(context.Background(), &Report{StartedAt: testutil.FixedNow()})
	assert.ErrorContains(t, err, "2026/03/15/20260315T120000Z.json")
	assert.ErrorContains(t, err, "access denied")
}

func TestNewS3Archiver_RequiresCredentials(t *testing.T) {
	_, err := NewS3Archiver(context.Background(), &config.StorageConfig{Bucket: "reports"})
	assert.Error(t, err)

	archiver, err := NewS3Archiver(context.Background(), &config.StorageConfig{
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Bucket:          "reports",
		Prefix:          "sweeps",
	})
	require.NoError(t, err)
	assert.Equal(t, "reports", archiver.bucket)
}

func TestSweep_ArchivesReport(t *testing.T) {
	f := newFixture(t)
	f.annual(t, f.now.Add(-1), 1)
	putter := &fakePutter{}

	report := mustSweep(t, f.newSweeper(f.store, newS3Archiver(putter, "reports", "sweeps")))
	require.Len(t, putter.inputs, 1)

	var decoded Report
	require.NoError(t, json.Unmarshal(putter.bodies[0], &decoded))
	assert.Equal(t, report.RefillCount, decoded.RefillCount)
}

func TestSweep_ArchiveFailureDoesNotFailSweep(t *testing.T) {
	f := newFixture(t)
	f.annual(t, f.now.Add(-1), 1)

	report, err := f.newSweeper(f.store, newS3Archiver(&fakePutter{err: errors.New("bucket gone")}, "reports", "")).
		Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.RefillCount)
}

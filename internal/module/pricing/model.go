package pricing

// Model is an image generation model identifier.
type Model string

const (
	ModelNanoBanana    Model = "nano-banana"
	ModelNanoBananaPro Model = "nano-banana-pro"
)

// Resolution is an output resolution tier.
type Resolution string

const (
	Resolution1K Resolution = "1k"
	Resolution2K Resolution = "2k"
	Resolution4K Resolution = "4k"
)

// Mode is the generation mode.
type Mode string

const (
	ModeTextToImage  Mode = "text-to-image"
	ModeImageToImage Mode = "image-to-image"
)

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	return m == ModeTextToImage || m == ModeImageToImage
}

// price is the per-image cost for one resolution.
type price struct {
	textToImage  int64
	imageToImage int64
}

func (p price) forMode(m Mode) int64 {
	if m == ModeImageToImage {
		return p.imageToImage
	}
	return p.textToImage
}

type modelPricing struct {
	displayName string
	// resolutions in display order; the first is the default.
	resolutions []Resolution
	prices      map[Resolution]price
}

var catalog = map[Model]modelPricing{
	ModelNanoBanana: {
		displayName: "Nano Banana",
		resolutions: []Resolution{Resolution1K, Resolution2K},
		prices: map[Resolution]price{
			Resolution1K: {textToImage: 1, imageToImage: 2},
			Resolution2K: {textToImage: 1, imageToImage: 2},
		},
	},
	ModelNanoBananaPro: {
		displayName: "Nano Banana Pro",
		resolutions: []Resolution{Resolution2K, Resolution4K},
		prices: map[Resolution]price{
			Resolution2K: {textToImage: 3, imageToImage: 4},
			Resolution4K: {textToImage: 5, imageToImage: 6},
		},
	},
}

// modelOrder fixes the catalog listing order.
var modelOrder = []Model{ModelNanoBanana, ModelNanoBananaPro}

// ModelInfo describes a model for selectors.
type ModelInfo struct {
	ID                Model             `json:"id"`
	DisplayName       string            `json:"display_name"`
	Resolutions       []Resolution      `json:"resolutions"`
	DefaultResolution Resolution        `json:"default_resolution"`
	Costs             []ResolutionCosts `json:"costs"`
}

// ResolutionCosts lists per-image costs for one resolution.
type ResolutionCosts struct {
	Resolution   Resolution `json:"resolution"`
	TextToImage  int64      `json:"text_to_image"`
	ImageToImage int64      `json:"image_to_image"`
}

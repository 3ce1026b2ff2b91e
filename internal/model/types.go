package model

// Tensor layouts understood by the preprocessing pipeline.
const (
	LayoutNHWC = "nhwc"
	LayoutNCHW = "nchw"
)

// Channel orders understood by the preprocessing pipeline.
const (
	ChannelsBGR = "bgr"
	ChannelsRGB = "rgb"
)

// Metadata describes the exported model artifact. It is stored as JSON next
// to the artifact so the class order travels with the weights.
type Metadata struct {
	InputName    string   `json:"input_name"`
	OutputName   string   `json:"output_name"`
	InputShape   []int64  `json:"input_shape"`
	OutputShape  []int64  `json:"output_shape"`
	Classes      []string `json:"classes"`
	ImageSize    int      `json:"image_size"`
	Layout       string   `json:"layout"`
	ChannelOrder string   `json:"channel_order"`
	Scale        float32  `json:"scale"`
}

// Prediction is the top class picked from the model output.
type Prediction struct {
	Index int
	Label string
	Score float32
}

type PredictionResponse struct {
	Prediction string `json:"prediction"`
}

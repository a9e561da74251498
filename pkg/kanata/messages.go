package kanata

type changeLayer struct {
	New string `json:"new"`
}

type changeLayerRequest struct {
	ChangeLayer changeLayer `json:"ChangeLayer"`
}

type layerChange struct {
	New string `json:"new"`
}

type notification struct {
	LayerChange *layerChange `json:"LayerChange"`
}

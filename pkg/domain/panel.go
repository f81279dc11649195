package domain

// PanelPrompt は AI モデルから返されるコマ割り台本の1パネル分の構成です。
type PanelPrompt struct {
	Panel       int    `json:"panel"`
	Scene       string `json:"scene"`
	Characters  string `json:"characters"`
	Dialogue    string `json:"dialogue"`
	CameraAngle string `json:"camera_angle"`
	Emotion     string `json:"emotion"`
	ImagePrompt string `json:"image_prompt"`
}

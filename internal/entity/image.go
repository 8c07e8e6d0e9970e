package entity

// ImageRef identifies one discovered card image within a set.
type ImageRef struct {
	SetCode       string `json:"set_code"`
	SetName       string `json:"set_name,omitempty"`
	ImagePath     string `json:"image_path"`
	ImageFileName string `json:"image_file_name"`
	ImageURL      string `json:"image_url,omitempty"`
}

package models

// PreviewRecord is the link-preview card data extracted from a page head.
// Empty strings mean the field was not found. Image, Video, URL and Favicon
// are always absolute https URLs when set.
type PreviewRecord struct {
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Image       string `json:"image,omitempty" yaml:"image,omitempty"`
	ImageAlt    string `json:"image_alt,omitempty" yaml:"image_alt,omitempty"`
	URL         string `json:"url" yaml:"url"`
	Video       string `json:"video,omitempty" yaml:"video,omitempty"`
	VideoType   string `json:"video_type,omitempty" yaml:"video_type,omitempty"`
	SiteName    string `json:"site_name,omitempty" yaml:"site_name,omitempty"`
	Favicon     string `json:"favicon,omitempty" yaml:"favicon,omitempty"`
	Language    string `json:"language,omitempty" yaml:"language,omitempty"`
}

package types

import (
	"fmt"
	"image"
	"time"
)

// Sentinel labels used when a value could not be determined
const (
	UndetectedEmotion  = "Undetected"
	UnknownGender      = "Unknown"
	UnknownAge         = 0
	UnknownColor       = "Unknown"
	UnidentifiedPerson = "Unidentified"
)

// Box is a pixel-space rectangle (top-left corner plus size)
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FromRect converts an image.Rectangle to a Box
func FromRect(r image.Rectangle) Box {
	return Box{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Rect returns the box as an image.Rectangle
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Clamp intersects the box with the given bounds
func (b Box) Clamp(bounds image.Rectangle) Box {
	r := b.Rect().Intersect(bounds)
	if r.Empty() {
		return Box{}
	}
	return FromRect(r)
}

// Empty reports whether the box has zero area
func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Area returns the area of the box in pixels
func (b Box) Area() int {
	if b.Empty() {
		return 0
	}
	return b.Width * b.Height
}

// Color is an 8-bit RGB triple
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Black is the fallback color for empty or failed regions
var Black = Color{}

// String renders the color as "RGB(r, g, b)"
func (c Color) String() string {
	return fmt.Sprintf("RGB(%d, %d, %d)", c.R, c.G, c.B)
}

// Triple renders the color as "r,g,b"
func (c Color) Triple() string {
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}

// Brightness is the mean of the three channels
func (c Color) Brightness() float64 {
	return (float64(c.R) + float64(c.G) + float64(c.B)) / 3
}

// Attributes holds the externally inferred attributes of one face
type Attributes struct {
	Emotion    string  `json:"emotion"`
	Gender     string  `json:"gender"`
	Age        int     `json:"age"`
	Confidence float64 `json:"confidence,omitempty"`
}

// UnknownAttributes returns the sentinel attributes used when inference fails
func UnknownAttributes() Attributes {
	return Attributes{
		Emotion: UndetectedEmotion,
		Gender:  UnknownGender,
		Age:     UnknownAge,
	}
}

// Normalize replaces empty labels with their sentinels and clears negative ages
func (a Attributes) Normalize() Attributes {
	if a.Emotion == "" {
		a.Emotion = UndetectedEmotion
	}
	if a.Gender == "" {
		a.Gender = UnknownGender
	}
	if a.Age < 0 {
		a.Age = UnknownAge
	}
	return a
}

// AttributeRecord is the structured result for one detected face
type AttributeRecord struct {
	Gender        string    `json:"gender"`
	Age           int       `json:"age"`
	HairColor     string    `json:"hair_color"`
	EyeColor      string    `json:"eye_color"`
	Emotion       string    `json:"emotion"`
	Identity      string    `json:"identity,omitempty"`
	ClothingColor Color     `json:"clothing_color"`
	HairRGB       Color     `json:"hair_rgb"`
	EyeRGB        Color     `json:"eye_rgb"`
	Box           Box       `json:"box"`
	Timestamp     time.Time `json:"timestamp"`
}

// Labels returns the annotation lines for the record, top line last
func (r AttributeRecord) Labels() []string {
	labels := []string{
		"Gender: " + r.Gender,
		fmt.Sprintf("Age: %d", r.Age),
		"Emotion: " + r.Emotion,
		"Hair: " + r.HairColor,
		"Eye: " + r.EyeColor,
	}
	if r.Identity != "" {
		labels = append(labels, "Name: "+r.Identity)
	}
	return labels
}

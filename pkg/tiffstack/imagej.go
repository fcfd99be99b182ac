package tiffstack

import (
	"fmt"
	"strconv"
	"strings"

	"movieslicer/internal/models"
)

const imageJVersion = "1.11a"

// ImageJDescription builds the hyperstack description for a time series with
// a single channel, one frame per page.
func ImageJDescription(s *models.Stack) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ImageJ=%s\n", imageJVersion)
	if s.Pages > 1 {
		fmt.Fprintf(&b, "images=%d\n", s.Pages)
		b.WriteString("channels=1\n")
		fmt.Fprintf(&b, "frames=%d\n", s.Pages)
		b.WriteString("hyperstack=true\n")
		b.WriteString("mode=grayscale\n")
		b.WriteString("loop=false\n")
	}
	return b.String()
}

// IsImageJ reports whether desc was written in the ImageJ convention
func IsImageJ(desc string) bool {
	return strings.HasPrefix(desc, "ImageJ=")
}

// ParseDescription splits an ImageJ style key=value description.
// Lines without '=' are ignored.
func ParseDescription(desc string) map[string]string {
	meta := make(map[string]string)
	for _, line := range strings.Split(desc, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok || key == "" {
			continue
		}
		meta[key] = value
	}
	return meta
}

// imageCount returns the images= entry of an ImageJ description, or 0
func imageCount(desc string) int {
	if !IsImageJ(desc) {
		return 0
	}
	n, err := strconv.Atoi(ParseDescription(desc)["images"])
	if err != nil {
		return 0
	}
	return n
}

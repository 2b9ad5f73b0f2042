package render

import (
	"context"
	"testing"

	"github.com/matzehuels/flowplan/pkg/errors"
)

func TestConverterMissingBinary(t *testing.T) {
	c := Converter{Binary: "flowplan-no-such-rsvg"}
	if c.Available() {
		t.Fatal("Available() = true for a missing binary")
	}

	for name, convert := range map[string]func(context.Context, []byte) ([]byte, error){
		"png": c.PNG,
		"pdf": c.PDF,
	} {
		_, err := convert(context.Background(), []byte("<svg/>"))
		if !errors.Is(err, errors.ErrCodeUnsupported) {
			t.Errorf("%s: err = %v, want UNSUPPORTED", name, err)
		}
	}
}

func TestConverterDefaults(t *testing.T) {
	if got := (Converter{}).binary(); got != DefaultBinary {
		t.Errorf("binary() = %q, want %q", got, DefaultBinary)
	}
	if got := (Converter{Binary: "/opt/rsvg"}).binary(); got != "/opt/rsvg" {
		t.Errorf("binary() = %q, want /opt/rsvg", got)
	}
}

func TestConverterPNG(t *testing.T) {
	c := Converter{}
	if !c.Available() {
		t.Skip("rsvg-convert not installed")
	}
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><rect width="10" height="10"/></svg>`)
	png, err := c.PNG(context.Background(), svg)
	if err != nil {
		t.Fatal(err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Errorf("output is not a PNG: % x", png[:min(8, len(png))])
	}
}

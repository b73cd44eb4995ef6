package input

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-foliage/internal/logger"
)

type xmlController struct {
	XMLName  xml.Name     `xml:"Controller"`
	Controls []xmlControl `xml:"Control"`
}

type xmlControl struct {
	Name           string         `xml:"name,attr"`
	InitialValue   float32        `xml:"initialValue,attr"`
	Speed          float32        `xml:"speed,attr"`
	AutoReverse    bool           `xml:"autoReverseToInitialValue,attr"`
	ToggleAtLimits bool           `xml:"autoChangeDirectionOnLimitsAfterStop,attr"`
	KeyBinders     []xmlKeyBinder `xml:"KeyBinder"`
}

type xmlKeyBinder struct {
	Key       string `xml:"key,attr"`
	Direction string `xml:"direction,attr"`
}

// keyName returns the persisted name of key. Keys without a name are
// written as their numeric code.
func keyName(key sdl.Keycode) string {
	if name := sdl.GetKeyName(key); name != "" {
		return name
	}
	return strconv.Itoa(int(key))
}

func parseKey(name string) sdl.Keycode {
	if key := sdl.GetKeyFromName(name); key != sdl.K_UNKNOWN {
		return key
	}
	if n, err := strconv.Atoi(name); err == nil {
		return sdl.Keycode(n)
	}
	return sdl.K_UNKNOWN
}

// LoadXML reads controls and their key bindings. Controls already present
// are replaced.
func (b *Binder) LoadXML(r io.Reader) error {
	var doc xmlController
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("decoding key bindings: %w", err)
	}
	for _, xc := range doc.Controls {
		c := NewControl(xc.Name, xc.InitialValue, xc.Speed)
		c.AutoReverse = xc.AutoReverse
		c.ToggleAtLimits = xc.ToggleAtLimits
		b.AddControl(c)
		for _, kb := range xc.KeyBinders {
			key := parseKey(kb.Key)
			if key == sdl.K_UNKNOWN {
				logger.Warn("ignoring binding to unknown key",
					zap.String("control", xc.Name), zap.String("key", kb.Key))
				continue
			}
			b.AddKeyBinding(c, key, ParseDirection(kb.Direction))
		}
	}
	return nil
}

// SaveXML writes every control and its key bindings.
func (b *Binder) SaveXML(w io.Writer) error {
	var doc xmlController
	for _, c := range b.controls {
		xc := xmlControl{
			Name:           c.Name(),
			InitialValue:   c.InitialValue(),
			Speed:          c.Speed(),
			AutoReverse:    c.AutoReverse,
			ToggleAtLimits: c.ToggleAtLimits,
		}
		for key, kb := range b.keys {
			if kb.control == c {
				xc.KeyBinders = append(xc.KeyBinders, xmlKeyBinder{Key: keyName(key), Direction: kb.direction.String()})
			}
		}
		sort.Slice(xc.KeyBinders, func(i, j int) bool {
			return xc.KeyBinders[i].Key < xc.KeyBinders[j].Key
		})
		doc.Controls = append(doc.Controls, xc)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding key bindings: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// LoadFile reads bindings from path.
func (b *Binder) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return b.LoadXML(f)
}

// SaveFile writes bindings to path, creating its directory.
func (b *Binder) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating bindings directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := b.SaveXML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

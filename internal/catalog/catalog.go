// Package catalog loads the static bar and slot catalogs from their
// "[section]" / "key = value" INI files.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/pable/casinolog/internal/model"
)

// ErrEmptyCatalog is returned when a catalog file declares no entries.
var ErrEmptyCatalog = errors.New("catalog has no entries")

// loadOptions keep "role;role" values intact and split only on "=", since
// item names may contain ':'.
var loadOptions = ini.LoadOptions{
	IgnoreInlineComment:     true,
	IgnoreContinuation:      true,
	SkipUnrecognizableLines: true,
	KeyValueDelimiters:      "=",
}

func parse(r io.Reader) (*ini.File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ini.LoadSources(loadOptions, data)
}

// sections yields every named section; entries above the first header are ignored.
func sections(f *ini.File) []*ini.Section {
	var out []*ini.Section
	for _, s := range f.Sections() {
		if s.Name() == ini.DefaultSection {
			continue
		}
		out = append(out, s)
	}
	return out
}

// ParseBars reads "[Genre]" sections holding "name = payout" lines.
// Entries whose payout is not a number are skipped.
func ParseBars(r io.Reader) ([]model.BarItem, error) {
	f, err := parse(r)
	if err != nil {
		return nil, fmt.Errorf("read bar catalog: %w", err)
	}

	var items []model.BarItem
	for _, sec := range sections(f) {
		for _, k := range sec.Keys() {
			payout, err := strconv.Atoi(strings.TrimSpace(k.Value()))
			if err != nil || payout < 0 {
				continue
			}
			items = append(items, model.BarItem{Name: k.Name(), Genre: sec.Name(), Payout: payout})
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("bar catalog: %w", ErrEmptyCatalog)
	}
	return items, nil
}

// ParseSlots reads "[price]" sections holding "name = role;role;..." lines.
// An empty role list is allowed; sections whose name is not a price are skipped.
func ParseSlots(r io.Reader) ([]model.SlotMachine, error) {
	f, err := parse(r)
	if err != nil {
		return nil, fmt.Errorf("read slot catalog: %w", err)
	}

	var machines []model.SlotMachine
	for _, sec := range sections(f) {
		price, err := strconv.Atoi(sec.Name())
		if err != nil || price < 0 {
			continue
		}
		for _, k := range sec.Keys() {
			var roles []string
			for _, role := range strings.Split(k.Value(), ";") {
				if role = strings.TrimSpace(role); role != "" {
					roles = append(roles, role)
				}
			}
			machines = append(machines, model.SlotMachine{Name: k.Name(), Price: price, Roles: roles})
		}
	}
	if len(machines) == 0 {
		return nil, fmt.Errorf("slot catalog: %w", ErrEmptyCatalog)
	}
	return machines, nil
}

// Load reads both catalog files and indexes them.
func Load(barPath, slotPath string) (*model.Catalog, error) {
	bf, err := os.Open(barPath)
	if err != nil {
		return nil, fmt.Errorf("open bar catalog: %w", err)
	}
	defer bf.Close()
	bars, err := ParseBars(bf)
	if err != nil {
		return nil, err
	}

	sf, err := os.Open(slotPath)
	if err != nil {
		return nil, fmt.Errorf("open slot catalog: %w", err)
	}
	defer sf.Close()
	slots, err := ParseSlots(sf)
	if err != nil {
		return nil, err
	}

	return model.NewCatalog(bars, slots), nil
}

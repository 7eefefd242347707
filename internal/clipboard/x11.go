package clipboard

import (
	"fmt"
	"sort"

	"github.com/jezek/xgb/xproto"
)

// Well-known selection-related atom names, interned through
// x11wm.AtomCache the same way x11wm interns _NET_WM_STATE.
const (
	AtomTargets   = "TARGETS"
	AtomTimestamp = "TIMESTAMP"
	AtomIncr      = "INCR"
	AtomClipboard = "CLIPBOARD"
)

// AtomTranslator is the subset of x11wm.AtomCache clipboard needs: name
// to atom, single and batched. Declared locally so this package doesn't
// import x11wm for a two-method slice. The atom-to-name direction is not
// part of it; NamesForAtoms takes a caller-built reverse index instead.
type AtomTranslator interface {
	Get(name string) (xproto.Atom, error)
	InternBatch(names []string) (map[string]xproto.Atom, error)
}

// GuestOffer is one MIME type a Wayland data source has advertised via
// wl_data_source.offer, about to be re-advertised to X11 as a SELECTION
// target atom.
type GuestOffer struct {
	MimeType string
}

// BuildTargetsAtoms interns every offered MIME type (batched, spec.md
// §4.7 "host -> guest ... intern every MIME string as an X11 atom
// (batched)") and returns the abstract TARGETS list: every offered
// type's atom plus TARGETS and TIMESTAMP themselves, sorted by atom
// value for a deterministic reply.
func BuildTargetsAtoms(t AtomTranslator, offers []GuestOffer) ([]xproto.Atom, error) {
	names := make([]string, 0, len(offers)+2)
	for _, o := range offers {
		names = append(names, o.MimeType)
	}
	names = append(names, AtomTargets, AtomTimestamp)

	resolved, err := t.InternBatch(names)
	if err != nil {
		return nil, fmt.Errorf("clipboard: intern targets: %w", err)
	}

	atoms := make([]xproto.Atom, 0, len(resolved))
	for _, n := range names {
		atoms = append(atoms, resolved[n])
	}
	sort.Slice(atoms, func(i, j int) bool { return atoms[i] < atoms[j] })
	return atoms, nil
}

// MimeForAtom resolves an X11 client's requested target atom back to the
// MIME type string sommelier should ask the Wayland data source for via
// wl_data_source.send, by reverse-scanning the offers against a fresh
// single-atom lookup. Kept O(n) in offer count, which is always small.
func MimeForAtom(t AtomTranslator, offers []GuestOffer, target xproto.Atom) (string, bool) {
	for _, o := range offers {
		atom, err := t.Get(o.MimeType)
		if err != nil {
			continue
		}
		if atom == target {
			return o.MimeType, true
		}
	}
	return "", false
}

// NamesForAtoms converts the atom list an X11 selection owner reported
// in reply to a TARGETS conversion back to MIME name strings, about to
// be re-advertised to the Wayland side as wl_data_source.offer calls
// (spec.md §4.7 guest->host direction: "convert TARGETS to get the MIME
// list"). atomNames is the caller's atom->name reverse index, built
// once per selection change via repeated GetAtomName lookups.
func NamesForAtoms(atomNames map[xproto.Atom]string, atoms []xproto.Atom) []string {
	names := make([]string, 0, len(atoms))
	for _, a := range atoms {
		if n, ok := atomNames[a]; ok {
			names = append(names, n)
		}
	}
	return names
}

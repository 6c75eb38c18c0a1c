package wasm

import (
	"io"
	"sort"

	"fern/report"
)

// magic and version form the 8-byte module preamble.
var (
	magic   = []byte{0x00, 0x61, 0x73, 0x6d}
	version = []byte{0x01, 0x00, 0x00, 0x00}
)

// Module is a binary module: an ordered list of sections.  It is immutable
// once built and serialized on demand.
type Module struct {
	Sections []Section
}

// NewModule creates a module from sections.  Nil sections are skipped so that
// callers can pass optional sections unconditionally.
func NewModule(sections ...Section) *Module {
	m := &Module{}
	for _, s := range sections {
		if s != nil && !isNilSection(s) {
			m.Sections = append(m.Sections, s)
		}
	}

	return m
}

// isNilSection catches typed nil pointers stored in the interface.
func isNilSection(s Section) bool {
	switch v := s.(type) {
	case *TypeSection:
		return v == nil
	case *ImportSection:
		return v == nil
	case *FunctionSection:
		return v == nil
	case *TableSection:
		return v == nil
	case *MemorySection:
		return v == nil
	case *GlobalSection:
		return v == nil
	case *ExportSection:
		return v == nil
	case *StartSection:
		return v == nil
	case *ElementSection:
		return v == nil
	case *CodeSection:
		return v == nil
	case *DataSection:
		return v == nil
	}

	return false
}

// Section returns the module's section with the given id or nil.
func (m *Module) Section(id SectionID) Section {
	for _, s := range m.Sections {
		if s.ID() == id {
			return s
		}
	}

	return nil
}

// Encode serializes the module.  Sections are written in canonical order each
// as (id, length, payload).  Any encoding failure aborts the whole module: no
// partial output is ever returned.
func (m *Module) Encode() (b []byte, err error) {
	defer func() {
		if err != nil {
			b = nil
		}
	}()
	defer report.CatchErrors(&err)

	sections := make([]Section, len(m.Sections))
	copy(sections, m.Sections)
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].ID() < sections[j].ID()
	})

	b = append(b, magic...)
	b = append(b, version...)

	for i, s := range sections {
		if i > 0 && sections[i-1].ID() == s.ID() {
			report.ICE("duplicate %s section", s.ID())
		}

		// The payload goes into a scratch buffer first so its length can be
		// written ahead of it.
		payload := s.AppendPayload(nil)

		b = append(b, byte(s.ID()))
		b = AppendUleb(b, uint64(len(payload)))
		b = append(b, payload...)
	}

	return b, nil
}

// WriteTo writes the encoded module to w.
func (m *Module) WriteTo(w io.Writer) (int64, error) {
	b, err := m.Encode()
	if err != nil {
		return 0, err
	}

	n, err := w.Write(b)
	return int64(n), err
}

func panicUnsupportedImport(imp Import) {
	report.ICE("unsupported %s import `%s.%s`", imp.Kind, imp.Module, imp.Name)
}

package remittance

import (
	"fmt"

	"github.com/warp/remittance-engine/generic"
)

// =============================================================================
// REFERENCE DIRECTORY - ministries and the departments that owe remittances
// =============================================================================

// Department is a unit that owes a monthly remittance.
type Department struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Ministry owns one or more departments.
type Ministry struct {
	Name        string       `json:"name"`
	Departments []Department `json:"departments"`
}

// Directory is the read-only department universe. It keeps the source
// order of ministries and departments; report code sorts with a Collator
// where presentation order matters.
type Directory struct {
	ministries []Ministry
	index      map[DepartmentRef]Department
	byName     map[string][]DepartmentRef
}

// NewDirectory validates and indexes the ministries. Empty names and
// duplicate departments within a ministry are rejected; the same
// department name under two ministries is allowed.
func NewDirectory(ministries []Ministry) (*Directory, error) {
	d := &Directory{
		index:  make(map[DepartmentRef]Department),
		byName: make(map[string][]DepartmentRef),
	}
	seenMinistry := make(map[string]bool)
	for _, m := range ministries {
		if m.Name == "" {
			return nil, fmt.Errorf("directory: ministry with empty name")
		}
		if seenMinistry[m.Name] {
			return nil, fmt.Errorf("directory: duplicate ministry %q", m.Name)
		}
		seenMinistry[m.Name] = true

		copied := Ministry{Name: m.Name, Departments: make([]Department, 0, len(m.Departments))}
		for _, dep := range m.Departments {
			if dep.Name == "" {
				return nil, fmt.Errorf("directory: empty department name in %q", m.Name)
			}
			ref := DepartmentRef{Ministry: m.Name, Department: dep.Name}
			if _, dup := d.index[ref]; dup {
				return nil, fmt.Errorf("directory: duplicate department %q in %q", dep.Name, m.Name)
			}
			d.index[ref] = dep
			d.byName[dep.Name] = append(d.byName[dep.Name], ref)
			copied.Departments = append(copied.Departments, dep)
		}
		d.ministries = append(d.ministries, copied)
	}
	return d, nil
}

// MustDirectory panics on invalid input. Intended for tests and fixtures.
func MustDirectory(ministries []Ministry) *Directory {
	d, err := NewDirectory(ministries)
	if err != nil {
		panic(err)
	}
	return d
}

// Ministries returns ministry names in Arabic collation order.
func (d *Directory) Ministries() []string {
	names := make([]string, len(d.ministries))
	for i, m := range d.ministries {
		names[i] = m.Name
	}
	generic.NewCollator().SortStrings(names)
	return names
}

// Departments returns a ministry's departments in source order.
func (d *Directory) Departments(ministry string) []Department {
	for _, m := range d.ministries {
		if m.Name == ministry {
			out := make([]Department, len(m.Departments))
			copy(out, m.Departments)
			return out
		}
	}
	return nil
}

// All returns every department ref, ministry by ministry in source order.
func (d *Directory) All() []DepartmentRef {
	out := make([]DepartmentRef, 0, len(d.index))
	for _, m := range d.ministries {
		for _, dep := range m.Departments {
			out = append(out, DepartmentRef{Ministry: m.Name, Department: dep.Name})
		}
	}
	return out
}

// Len is the number of departments.
func (d *Directory) Len() int { return len(d.index) }

// Lookup returns the department entry for ref.
func (d *Directory) Lookup(ref DepartmentRef) (Department, bool) {
	dep, ok := d.index[ref]
	return dep, ok
}

// Contains reports whether ref is in the directory.
func (d *Directory) Contains(ref DepartmentRef) bool {
	_, ok := d.index[ref]
	return ok
}

// AmbiguousNames lists department names that appear under more than one
// ministry. Reports key on (ministry, department), so these are safe, but
// operators asked for them to be surfaced.
func (d *Directory) AmbiguousNames() []string {
	var out []string
	for name, refs := range d.byName {
		if len(refs) > 1 {
			out = append(out, name)
		}
	}
	generic.NewCollator().SortStrings(out)
	return out
}

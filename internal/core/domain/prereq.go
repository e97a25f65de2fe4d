package domain

import "iter"

// PrereqKind distinguishes artifacts from non-artifact inputs in a prerequisite set.
type PrereqKind int

const (
	// PrereqArtifact is a resolved build artifact.
	PrereqArtifact PrereqKind = iota
	// PrereqConfigStamp is the configuration stamp.
	PrereqConfigStamp
	// PrereqSource is a tracked source file or generated static output.
	PrereqSource
)

// Prerequisite is a single member of a PrerequisiteSet.
type Prerequisite struct {
	Kind     PrereqKind
	Path     string
	Artifact *ArtifactRef
}

// ArtifactPrereq wraps a resolved artifact.
func ArtifactPrereq(p ArtifactPath) Prerequisite {
	ref := p.Ref
	return Prerequisite{Kind: PrereqArtifact, Path: p.Path, Artifact: &ref}
}

// StampPrereq wraps the configuration stamp.
func StampPrereq(path string) Prerequisite {
	return Prerequisite{Kind: PrereqConfigStamp, Path: path}
}

// SourcePrereq wraps a non-artifact file.
func SourcePrereq(path string) Prerequisite {
	return Prerequisite{Kind: PrereqSource, Path: path}
}

// PrerequisiteSet is an ordered collection deduplicated by path.
// The zero value is an empty set ready to use.
type PrerequisiteSet struct {
	items []Prerequisite
	index map[string]int
}

// NewPrerequisiteSet builds a set from the given members in order.
func NewPrerequisiteSet(items ...Prerequisite) PrerequisiteSet {
	var s PrerequisiteSet
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add appends a member unless its path is already present. It reports whether it was added.
func (s *PrerequisiteSet) Add(p Prerequisite) bool {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[p.Path]; ok {
		return false
	}
	s.index[p.Path] = len(s.items)
	s.items = append(s.items, p)
	return true
}

// AddArtifacts appends resolved artifacts in order.
func (s *PrerequisiteSet) AddArtifacts(paths ...ArtifactPath) {
	for _, p := range paths {
		s.Add(ArtifactPrereq(p))
	}
}

// Union returns a new set holding s followed by the members of other not already in s.
func (s PrerequisiteSet) Union(other PrerequisiteSet) PrerequisiteSet {
	out := s.Clone()
	for _, p := range other.items {
		out.Add(p)
	}
	return out
}

// Clone returns an independent copy.
func (s PrerequisiteSet) Clone() PrerequisiteSet {
	var out PrerequisiteSet
	for _, p := range s.items {
		out.Add(p)
	}
	return out
}

// Contains reports whether a path is a member.
func (s PrerequisiteSet) Contains(path string) bool {
	_, ok := s.index[path]
	return ok
}

// IsSupersetOf reports whether every member of other is in s.
func (s PrerequisiteSet) IsSupersetOf(other PrerequisiteSet) bool {
	for _, p := range other.items {
		if !s.Contains(p.Path) {
			return false
		}
	}
	return true
}

// Len returns the number of members.
func (s PrerequisiteSet) Len() int {
	return len(s.items)
}

// Items returns the members in order.
func (s PrerequisiteSet) Items() []Prerequisite {
	out := make([]Prerequisite, len(s.items))
	copy(out, s.items)
	return out
}

// Paths returns member paths in order.
func (s PrerequisiteSet) Paths() []string {
	out := make([]string, 0, len(s.items))
	for _, p := range s.items {
		out = append(out, p.Path)
	}
	return out
}

// Artifacts yields only the artifact members.
func (s PrerequisiteSet) Artifacts() iter.Seq[Prerequisite] {
	return func(yield func(Prerequisite) bool) {
		for _, p := range s.items {
			if p.Kind != PrereqArtifact {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

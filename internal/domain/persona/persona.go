package persona

// Persona is a generated audience profile attached to a cluster by name.
type Persona struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Keywords        []string `json:"keywords"`
	Characteristics []string `json:"characteristics"`
	Interests       []string `json:"interests"`
	PainPoints      []string `json:"painPoints"`
	Goals           []string `json:"goals"`
}

// Set indexes personas by exact cluster name while keeping list order for persistence.
type Set struct {
	order  []string
	byName map[string]Persona
}

// NewSet builds a set from a persisted list. On repeated names the first entry wins.
func NewSet(list []Persona) *Set {
	s := &Set{
		order:  make([]string, 0, len(list)),
		byName: make(map[string]Persona, len(list)),
	}
	for _, p := range list {
		if _, ok := s.byName[p.Name]; ok {
			continue
		}
		s.order = append(s.order, p.Name)
		s.byName[p.Name] = p
	}
	return s
}

// Upsert sets the description of the persona named clusterName.
// An existing persona keeps every other field; a new one is appended with the
// cluster keywords and empty characteristic lists. Returns true when appended.
func (s *Set) Upsert(clusterName, description string, keywords []string) bool {
	if p, ok := s.byName[clusterName]; ok {
		p.Description = description
		s.byName[clusterName] = p
		return false
	}
	kw := make([]string, len(keywords))
	copy(kw, keywords)
	s.order = append(s.order, clusterName)
	s.byName[clusterName] = Persona{
		Name:            clusterName,
		Description:     description,
		Keywords:        kw,
		Characteristics: []string{},
		Interests:       []string{},
		PainPoints:      []string{},
		Goals:           []string{},
	}
	return true
}

// Get returns the persona for a cluster name.
func (s *Set) Get(clusterName string) (Persona, bool) {
	p, ok := s.byName[clusterName]
	return p, ok
}

// Len returns the number of personas.
func (s *Set) Len() int { return len(s.order) }

// List returns the personas in persistence order.
func (s *Set) List() []Persona {
	out := make([]Persona, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

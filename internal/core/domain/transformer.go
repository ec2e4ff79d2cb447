package domain

// TransformerDefinition declares a transformer's name and the entity types
// it accepts and produces. The router uses these to compose chains: the
// produced type of step i must match the consumed type of step i+1.
type TransformerDefinition struct {
	Name     string
	Consumes string
	Produces string
}

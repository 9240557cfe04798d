package mesh

// Field is a scalar function over the dofs of a FunctionSpace: potential,
// charge density, or wavefunction amplitude.
type Field struct {
	Space  *FunctionSpace
	Values []float64
}

// NewField returns a zero field on the given space.
func NewField(fs *FunctionSpace) Field {
	return Field{Space: fs, Values: make([]float64, fs.NDof)}
}

// Copy returns a deep copy of the field.
func (f Field) Copy() Field {
	v := make([]float64, len(f.Values))
	copy(v, f.Values)
	return Field{Space: f.Space, Values: v}
}

// Gather copies the field values at the dofs of element k into dst, which
// must have length Np.
func (f Field) Gather(dofs []int, dst []float64) {
	for i, d := range dofs {
		dst[i] = f.Values[d]
	}
}

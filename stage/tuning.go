package stage

const (
	// StageWidth is the stage-unit span both device axes are
	// normalized against. The diagram client assumes the same scale.
	StageWidth = 3.0

	// Spawn position for freshly registered performers.
	SpawnX = 3.0
	SpawnY = 3.0

	// DefaultDiagramID is used when a registration omits the diagram.
	// Current tracker consoles don't set the field.
	DefaultDiagramID = "1"
)

package types

// JSONMap stores loosely structured metadata in a jsonb column via the gorm
// json serializer.
type JSONMap map[string]any

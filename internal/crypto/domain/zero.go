package domain

// Zero overwrites b with zeros so key material does not linger in memory.
func Zero(b []byte) {
	clear(b)
}

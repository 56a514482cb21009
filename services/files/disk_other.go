//go:build !linux && !darwin

package files

// statDisk has no portable implementation; unsupported platforms report
// zero capacity rather than failing the request.
func statDisk(path string) (total, free uint64, err error) {
	return 0, 0, nil
}

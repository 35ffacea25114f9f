package mp4parser

// checkBounds validates a decoded header against its enclosing container.
// boxOffset must be less than containerEnd. It returns nil or a *DefectError.
func checkBounds(t BoxType, hdrSize int, size uint64, boxOffset, containerEnd int64) *DefectError {
	d := &DefectError{Type: t, Offset: boxOffset, Size: size, End: containerEnd}
	switch {
	case size < uint64(hdrSize):
		d.Kind = UndersizedBox
	case size > maxInt64:
		d.Kind = UnrepresentableSize
	case size > uint64(containerEnd-boxOffset):
		// Compared as remaining length so boxOffset+size cannot overflow.
		d.Kind = ContainerOverrun
	default:
		return nil
	}
	return d
}

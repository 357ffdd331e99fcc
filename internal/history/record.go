package history

// EncodePlaintext packs the fields a restored Entry needs (beyond the
// header's own sequence/timestamp) into the bytes that get sealed as one
// log record: a one-byte exit code, a one-byte flags field, then the raw
// command text.
func EncodePlaintext(cmd string, exitCode uint8, successful, bookmarked bool) []byte {
	var flags byte
	if successful {
		flags |= flagSuccessful
	}
	if bookmarked {
		flags |= flagBookmarked
	}
	out := make([]byte, 2+len(cmd))
	out[0] = exitCode
	out[1] = flags
	copy(out[2:], cmd)
	return out
}

// DecodePlaintext reverses EncodePlaintext; ok is false for a record too
// short to have come from it (treated as corrupt by the caller).
func DecodePlaintext(data []byte) (cmd string, exitCode uint8, successful, bookmarked bool, ok bool) {
	if len(data) < 2 {
		return "", 0, false, false, false
	}
	exitCode = data[0]
	flags := data[1]
	successful = flags&flagSuccessful != 0
	bookmarked = flags&flagBookmarked != 0
	cmd = string(data[2:])
	return cmd, exitCode, successful, bookmarked, true
}

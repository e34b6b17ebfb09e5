package oraerr

import (
	"errors"
	"regexp"
	"strconv"
)

var oraCode = regexp.MustCompile(`ORA-(\d{5})`)

// Code extracts the Oracle error number from err. godror errors expose the
// number directly; anything else is matched against the ORA-NNNNN message
// prefix. Returns 0 when no number can be determined.
func Code(err error) int {
	if err == nil {
		return 0
	}
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	if m := oraCode.FindStringSubmatch(err.Error()); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

// IsAlreadyExists reports a create/definition conflict: the object, a
// constraint name, or a column already exists in the target.
func IsAlreadyExists(err error) bool {
	switch Code(err) {
	case 955, 2264, 1430:
		return true
	}
	return false
}

// IsParseError reports a syntax or parse class failure from the target
// engine (invalid SQL statement, invalid character, PL/SQL compilation).
func IsParseError(err error) bool {
	switch Code(err) {
	case 900, 911, 6550:
		return true
	}
	return false
}

// IsUnsupportedType reports that DBMS_METADATA rejected the requested
// object type on this database.
func IsUnsupportedType(err error) bool {
	return Code(err) == 31600
}

// IsMissingObject reports that a referenced table or view does not exist.
func IsMissingObject(err error) bool {
	return Code(err) == 942
}

// IsMetadataUnavailable reports that the DBMS_METADATA package itself is
// absent or inaccessible, so session transforms cannot be configured.
func IsMetadataUnavailable(err error) bool {
	switch Code(err) {
	case 4043, 6550:
		return true
	}
	return false
}

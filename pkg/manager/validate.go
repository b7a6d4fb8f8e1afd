package manager

import (
	"errors"
	"net"
	"strings"
)

// ValidateBucketName enforces DNS-safe S3 bucket naming rules.
func ValidateBucketName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("bucket name cannot be empty")
	}
	if len(name) < 3 || len(name) > 63 {
		return errors.New("bucket name length must be between 3 and 63 characters")
	}
	if net.ParseIP(name) != nil {
		return errors.New("bucket name cannot be formatted as an IP address")
	}
	if strings.Contains(name, "..") {
		return errors.New("bucket name contains invalid characters")
	}
	if name[0] == '.' || name[len(name)-1] == '.' {
		return errors.New("bucket name cannot start or end with a period")
	}
	if name[0] == '-' || name[len(name)-1] == '-' {
		return errors.New("bucket name cannot start or end with a hyphen")
	}
	if strings.HasPrefix(name, "xn--") {
		return errors.New("bucket name cannot start with 'xn--'")
	}
	if strings.HasSuffix(name, "-s3alias") {
		return errors.New("bucket name cannot end with '-s3alias'")
	}
	if strings.HasPrefix(name, "sthree-") {
		return errors.New("bucket name cannot start with 'sthree-'")
	}
	for _, char := range name {
		if (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9') || char == '-' || char == '.' {
			continue
		}
		return errors.New("bucket name contains invalid characters")
	}
	return nil
}

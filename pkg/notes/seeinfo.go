package notes

import (
	"strings"

	"photonotes/pkg/logger"
)

// SeeFileInfo is what a see-info filename reveals about the archived
// image. Parsing failures surface as cleanup markers, never as errors.
type SeeFileInfo struct {
	SecretID   string
	SizeSuffix string
	Cleanup    []string
}

// ParseSeeFilename extracts the photo secret and download size suffix
// from a see-info entry, typically the download filename of the
// archived image (e.g. "51089206529_16cabc7b13_b.jpeg").
func ParseSeeFilename(seeInfo, photoID string, log logger.Logger) *SeeFileInfo {
	if log == nil {
		log = logger.GetLogger()
	}
	info := &SeeFileInfo{}

	if !strings.Contains(seeInfo, photoID) {
		log.WarnWithFields("photo id missing in see-info", map[string]interface{}{
			"photo_id": photoID,
			"see_info": seeInfo,
		})
		info.Cleanup = append(info.Cleanup, "missing image_id in see-info")
	}

	see := seeInfo
	if i := strings.IndexByte(see, '|'); i >= 0 {
		see = strings.TrimSpace(see[:i])
	}

	parts := strings.Split(see, ".")
	if len(parts) < 2 {
		return info
	}

	if parts[len(parts)-1] == "crdownload" {
		log.WarnWithFields("see-info references an unfinished download", map[string]interface{}{
			"see_info": see,
		})
		info.Cleanup = append(info.Cleanup, "incomplete download in see-info")
		parts = parts[:len(parts)-1]
	}

	fileType := strings.TrimSpace(parts[len(parts)-1])
	if i := strings.IndexByte(fileType, ' '); i >= 0 {
		fileType = fileType[:i]
	}
	switch fileType {
	case "jpeg", "jpg", "mp4":
	case "png":
		log.WarnWithFields("see-info references a non-JPEG image", map[string]interface{}{
			"see_info": see,
		})
		info.Cleanup = append(info.Cleanup, "undesired image type png")
	default:
		log.WarnWithFields("unexpected suffix in see-info", map[string]interface{}{
			"see_info": see,
		})
		info.Cleanup = append(info.Cleanup, "unrecognized filetype suffix in see-info")
	}

	if len(parts) < 2 {
		return info
	}
	base := parts[len(parts)-2]
	fnParts := strings.Split(base, "_")
	// drop trailing underscores, e.g. "About time___.jpeg"
	for len(fnParts) > 0 && fnParts[len(fnParts)-1] == "" {
		fnParts = fnParts[:len(fnParts)-1]
	}

	// the length restriction avoids false positives on names that merely
	// end in a size-like word
	if len(fnParts) >= 3 && IsSizeSuffix(fnParts[len(fnParts)-1]) {
		secret := fnParts[len(fnParts)-2]
		if i := strings.LastIndexByte(secret, ' '); i >= 0 {
			secret = secret[i+1:]
		}
		info.SecretID = secret
		info.SizeSuffix = fnParts[len(fnParts)-1]
	}
	return info
}

// IsSizeSuffix reports whether value is a download size suffix: a
// pixel-count form like 3k/4k/6k, or one of the letter sizes o, k, h, b
func IsSizeSuffix(value string) bool {
	if len(value) > 1 && strings.HasSuffix(value, "k") && isDigits(value[:len(value)-1]) {
		return true
	}
	switch value {
	case "o", "k", "h", "b":
		return true
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

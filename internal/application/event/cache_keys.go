package event

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

func cacheKeyEventDetails(eventID string) string {
	return "event:details:" + eventID
}

func cacheKeyPublicList(f ListFilter) string {
	raw := fmt.Sprintf("loc=%s|q=%s|from=%d|to=%d|page=%d|size=%d",
		f.Location, f.Query, f.From.Unix(), f.To.Unix(), f.Page, f.PageSize)
	sum := sha256.Sum256([]byte(raw))
	return "event:list:public:" + hex.EncodeToString(sum[:8])
}

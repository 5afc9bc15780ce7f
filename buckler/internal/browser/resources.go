package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockSet normalises configured resource type names.
func blockSet(types []string) map[string]bool {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return set
}

// applyResourceBlocking fails requests of the configured resource types.
// The returned router must be stopped when the page closes.
func applyResourceBlocking(page *rod.Page, types []string) *rod.HijackRouter {
	set := blockSet(types)
	router := page.HijackRequests()

	router.MustAdd("*", func(h *rod.Hijack) {
		if shouldBlock(set, string(h.Request.Type())) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})

	go router.Run()
	return router
}

// shouldBlock maps CDP resource types to config names. Documents and
// scripts are never blocked: the profile views are rendered client-side.
func shouldBlock(set map[string]bool, resType string) bool {
	switch lower := strings.ToLower(resType); lower {
	case "document", "script", "xhr", "fetch":
		return false
	case "image":
		return set["images"]
	case "font":
		return set["fonts"]
	case "media":
		return set["media"]
	case "stylesheet":
		return set["stylesheets"]
	default:
		return set[lower]
	}
}

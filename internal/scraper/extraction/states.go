package extraction

// State is a step of the extraction walk
type State int

const (
	StateListDiscovery State = iota
	StateListLoaded
	StateItemIterating
	StateDetailSchemaDiscovery
	StateDetailFetching
	StatePageAdvance
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateListDiscovery:
		return "list_discovery"
	case StateListLoaded:
		return "list_loaded"
	case StateItemIterating:
		return "item_iterating"
	case StateDetailSchemaDiscovery:
		return "detail_schema_discovery"
	case StateDetailFetching:
		return "detail_fetching"
	case StatePageAdvance:
		return "page_advance"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// TerminalReason explains why a walk stopped
type TerminalReason string

const (
	// ReasonNoItems means the item selector timed out or matched nothing
	ReasonNoItems TerminalReason = "no_items"
	// ReasonLastPage means no enabled next control was present
	ReasonLastPage TerminalReason = "last_page"
	// ReasonMaxPages means the page bound was reached
	ReasonMaxPages TerminalReason = "max_pages"
	ReasonCanceled TerminalReason = "canceled"
	// ReasonNavigationFailed means the listing page itself could not load
	ReasonNavigationFailed TerminalReason = "navigation_failed"
	// ReasonDiscoveryFailed means no model produced a list selector map
	ReasonDiscoveryFailed TerminalReason = "discovery_failed"
	// ReasonNoSelectors means the selector map has no job_item selector
	ReasonNoSelectors TerminalReason = "no_selectors"
	// ReasonPaginationFailed means activating the next control failed
	ReasonPaginationFailed TerminalReason = "pagination_failed"
)

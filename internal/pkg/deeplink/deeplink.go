// Package deeplink resolves where a just-completed OAuth callback should
// send the browser, and builds the URLs the companion desktop app opens
// to receive its session.
package deeplink

import (
	"net/url"
	"strings"
)

// Origin tags carried through the OAuth state from the initial sign-in
// request
const (
	OriginWeb     = "web"
	OriginApp     = "app"
	OriginAppDev  = "app-dev"
	OriginPricing = "pricing"
)

// Action is what the browser should do after the callback completes
type Action string

const (
	// ActionStayWeb navigates to the web app home page
	ActionStayWeb Action = "stay_web"
	// ActionGoPricing navigates to the pricing page
	ActionGoPricing Action = "go_pricing"
	// ActionHandoff opens an app URL carrying an exchange code, then
	// optionally navigates the browser afterwards
	ActionHandoff Action = "handoff"
)

// Decision is the resolved outcome for one callback
type Decision struct {
	Action Action
	// AppURL is the deep link the browser should open. Set only for
	// ActionHandoff.
	AppURL string
	// WebURL is where the browser itself lands. For a handoff without
	// entitlement this is the account page, reached after a short delay
	// so the app redirect fires first.
	WebURL string
	// DelayWebNav is true when WebURL should be visited after the app
	// URL has had a chance to fire
	DelayWebNav bool
}

// Builder constructs deep link and web URLs from configured bases
type Builder struct {
	scheme        string // custom scheme for app-dev, e.g. "screenpro"
	universalBase string // https base for production app links
	webBase       string // web app base URL
}

// NewBuilder creates a Builder. scheme is the bare scheme name without
// "://"
func NewBuilder(scheme, universalBase, webBase string) *Builder {
	return &Builder{
		scheme:        strings.TrimSuffix(scheme, "://"),
		universalBase: strings.TrimRight(universalBase, "/"),
		webBase:       strings.TrimRight(webBase, "/"),
	}
}

// AppAuthURL builds the URL the desktop app consumes. The dev build
// registers a custom URL scheme; production uses a universal link so
// the OS verifies the domain before routing it to the app.
func (b *Builder) AppAuthURL(origin, code, state string, hasEntitlement bool) string {
	q := url.Values{}
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	if !hasEntitlement {
		q.Set("subscription_status", "none")
	}

	if origin == OriginAppDev {
		return b.scheme + "://auth-callback?" + q.Encode()
	}
	return b.universalBase + "/auth-callback?" + q.Encode()
}

// WebHomeURL is the web app home page
func (b *Builder) WebHomeURL() string {
	return b.webBase + "/"
}

// WebPricingURL is the pricing page
func (b *Builder) WebPricingURL() string {
	return b.webBase + "/pricing"
}

// WebAccountURL is the account page; withError adds a flag the page can
// surface when a handoff could not be completed
func (b *Builder) WebAccountURL(withError bool) string {
	u := b.webBase + "/account"
	if withError {
		u += "?handoff_error=1"
	}
	return u
}

// Resolve applies the origin decision table. code may be empty when
// exchange-code generation failed; in that case an app-origin callback
// degrades to a web account-page navigation instead of emitting a dead
// app link.
func (b *Builder) Resolve(origin, code, state string, hasEntitlement bool) Decision {
	switch origin {
	case OriginPricing:
		return Decision{Action: ActionGoPricing, WebURL: b.WebPricingURL()}

	case OriginApp, OriginAppDev:
		if code == "" {
			return Decision{Action: ActionStayWeb, WebURL: b.WebAccountURL(true)}
		}
		d := Decision{
			Action: ActionHandoff,
			AppURL: b.AppAuthURL(origin, code, state, hasEntitlement),
		}
		if !hasEntitlement {
			// The app still gets the session so it is logged in, but the
			// browser follows up on the account page where the user can
			// subscribe.
			d.WebURL = b.WebAccountURL(false)
			d.DelayWebNav = true
		}
		return d

	default:
		// "web" or absent
		return Decision{Action: ActionStayWeb, WebURL: b.WebHomeURL()}
	}
}

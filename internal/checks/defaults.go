package checks

// Defaults returns the standard analyzer set in its canonical order.
// Checks run sequentially per page in this order, so findings within a
// page are reproducible run to run.
//
// Design decision: We use an explicit constructor list instead of an
// init-time registry because:
// 1. The order is visible and reviewable in one place
// 2. Importing the package cannot mutate the set as a side effect
// 3. Callers compose custom sets by slicing or appending plain values
func Defaults() []Check {
	return []Check{
		NewSecurityHeadersCheck(),
		NewCORSCheck(),
		NewCookieFlagsCheck(),
		NewDirectoryListingCheck(),
		NewReflectedXSSCheck(),
		NewOpenRedirectCheck(),
		NewCSRFCheck(),
		NewOAuthRedirectURICheck(),
		NewOAuthImplicitFlowCheck(),
		NewOAuthPKCECheck(),
		NewSAMLRelayStateCheck(),
		NewSAMLRequestExposureCheck(),
		NewSubdomainTakeoverCheck(),
		NewCSPWeakCheck(),
		NewMixedContentCheck(),
		NewJSONPCallbackCheck(),
		NewOIDCDiscoveryCheck(),
		NewSAMLRequestParamCheck(),
		NewEXIFCheck(),
	}
}

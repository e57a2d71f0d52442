package ports

// Authorizer decides whether a presented credential may call the API.
type Authorizer interface {
	Authorize(credential string) bool
}

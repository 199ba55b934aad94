// Package components holds the presentational view models of the web client.
// Each model is pure data: it renders through the template partial named by
// Template and exposes its input unchanged through Props.
package components

// Component is implemented by every view model that renders through a partial.
type Component interface {
	Template() string
}

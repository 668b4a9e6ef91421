package entity

// PageSnapshot is the state of the page captured when a step fails.
type PageSnapshot struct {
	URL        string
	Title      string
	HTML       string
	Screenshot *Screenshot
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

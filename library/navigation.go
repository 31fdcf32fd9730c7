package library

import "strconv"

// Route is a navigation target. ID is zero for routes without a parameter.
type Route struct {
	Name string
	ID   int
}

const (
	RouteLogin       = "login"
	RouteBooks       = "books"
	RouteUpdateBook  = "update-book"
	RouteBookDetails = "book-details"
)

// Path renders the route the way the router expects it, e.g. "update-book/5".
func (r Route) Path() string {
	if r.ID == 0 {
		return r.Name
	}
	return r.Name + "/" + strconv.Itoa(r.ID)
}

func (r Route) String() string { return r.Path() }

// Navigator moves the user to another view.
type Navigator interface {
	Navigate(r Route)
}

// Notifier shows a blocking message to the user.
type Notifier interface {
	Alert(message string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Route)

func (f NavigatorFunc) Navigate(r Route) { f(r) }

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(string)

func (f NotifierFunc) Alert(message string) { f(message) }

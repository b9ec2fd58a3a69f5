// Package web provides the HTTP server and web interface for go-yelpcamp
package web

/*

	### **Core Files:**
	1. **`webserver_core_routes.go`** - Server setup, middleware chain, route table
	2. **`web_utils.go`** - Template loading, template helpers and rendering
	3. **`web_errors.go`** - AppError, wrap and the error page stage
	4. **`web_auth.go`** - Sessions, flash messages, RequireLogin, cookies
	5. **`web_validation.go`** - Form payloads and their validation middleware
	6. **`web_metrics.go`** - Prometheus collectors and request ids

	### **Page Handler Files:**
	7. **`web_campgrounds.go`** - Campground router and RequireCampgroundAuthor
	8. **`web_reviews.go`** - Reviews on the campground page
	9. **`web_login.go`** - Login, logout
	10. **`web_registerPage.go`** - Registration
	11. **`web_homePage.go`** - Home page

	### **Background:**
	12. **`web_session_cleanup.go`** - Expired session and flash pruning

*/

// Context keys shared by middleware and handlers
const (
	ctxSessionKey        = "session"
	ctxUserKey           = "user"
	ctxRequestIDKey      = "request_id"
	ctxCampgroundKey     = "campground"
	ctxReviewKey         = "review"
	ctxCampgroundFormKey = "campground_form"
	ctxReviewFormKey     = "review_form"
)

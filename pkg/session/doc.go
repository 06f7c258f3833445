// Package session holds the client's view of its authentication state: the
// current access token and the anonymous guest identifier used before login.
//
// The session is an explicit, injectable object rather than package-level
// state, so its lifecycle is visible and tests can construct isolated
// instances. The access token lives in memory only and is never persisted;
// the guest identifier is generated once per session and reused for every
// unauthenticated request.
//
// # Usage
//
//	sess := session.New()
//	sess.SetToken(loginResponse.AccessToken)
//
//	sub := sess.Subscribe(ctx)
//	go func() {
//	    for ev := range sub.C() {
//	        if ev == session.EventLoggedOut {
//	            redirectToLogin()
//	        }
//	    }
//	}()
//
// Invalidate clears the token and broadcasts EventLoggedOut to all
// subscribers. It is used when a previously valid session turns out to be
// invalid (a failed token refresh), as opposed to an ordinary logout via
// Clear which stays silent.
package session

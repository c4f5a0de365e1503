package sources

import "github.com/gopherjs/jssources/internal/policy"

// EnableDualStringBufferCaching lets sources keep both the string and the
// byte slice form of their texts once computed. This is the default.
func EnableDualStringBufferCaching() { policy.SetDualBufferCaching(true) }

// DisableDualStringBufferCaching makes sources keep a single form, trading
// repeated conversions for memory. Already cached values stay valid.
func DisableDualStringBufferCaching() { policy.SetDualBufferCaching(false) }

// IsDualStringBufferCachingEnabled reports the current setting.
func IsDualStringBufferCachingEnabled() bool { return policy.DualBufferCaching() }

// EnableStringInterning deduplicates texts and names of newly created
// sources through a shared table. Calls nest, each one must be matched by a
// DisableStringInterning call.
func EnableStringInterning() { policy.EnableInterning() }

// DisableStringInterning ends an interning scope. The shared table is
// released when the last scope ends.
func DisableStringInterning() { policy.DisableInterning() }

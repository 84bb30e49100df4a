// Package lazytest provides a reusable contract suite for lazily initialized
// singletons built on lazy.Holder and lazy.Loader.
//
// The suite asserts the properties every holder must honor: one construction
// across any number of concurrent accessors, identical instance identity for
// every caller, and stable identity across repeated sequential calls.
//
// Example pattern (resource package test):
//
//	func TestSharedClientContract(t *testing.T) {
//		conn := redisconn.New(redisconn.Config{Dial: fakeDial})
//		lazytest.RunSingletonContract(t, lazytest.Fixture{
//			Get:    func(ctx context.Context) (uuid.UUID, error) {
//				if _, err := conn.Get(ctx); err != nil {
//					return uuid.Nil, err
//				}
//				return conn.InstanceID(), nil
//			},
//			Builds: conn.Attempts,
//		}, lazytest.Options{})
//	}
package lazytest

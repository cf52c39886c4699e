// Package mock provides deterministic test doubles for the ai package.
package mock

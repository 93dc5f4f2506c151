// Package shared holds helpers used across packages that belong to no
// single layer. The testutil subpackage builds CSV fixtures and captures
// slog output in tests.
package shared

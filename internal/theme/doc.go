// Package theme bundles the Woodfish stylesheets, resolves user overrides and
// materialises them to disk so a CSS loader extension can import them.
package theme

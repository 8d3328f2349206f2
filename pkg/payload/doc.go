// Package payload trims outgoing records to the fields a remote operation
// accepts. Filtering is shallow: include rules run first and exclude rules are
// applied to whatever survives, so a field listed in both is always dropped.
package payload

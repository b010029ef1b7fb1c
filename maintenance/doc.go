// Package maintenance keeps a cachekeep store's on-disk directory
// consistent with its metadata store. None of the problems it fixes make
// the cache incorrect to use: a corrupted or dangling entry is just
// wasted space or a future cache miss, but left alone they accumulate.
//
// Four independently toggleable steps run in a fixed order (find
// corrupted, remove corrupted, clean expired, prune dangling), each
// logging and continuing past a single entry's failure rather than
// aborting the whole pass.
package maintenance

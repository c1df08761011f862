// Package timeline is component B: a generic, bounded, dual-keyed
// time-sorted container (spec.md §3.4/§4.B), grounded on
// identifier_and_time_sorted_container.h
// (_examples/original_source/source/containers/identifier_and_time_sorted_container.h).
//
// The original is a C++ template parameterized on policy classes that
// extract an id and a time from an entry. Per the "deep inheritance"
// design note in spec.md §9, this collapses to two plain extractor
// functions over a Go generic Container[ID, T], rather than reproducing
// the policy-class hierarchy.
package timeline

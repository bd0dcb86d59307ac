// Package assign reassigns trips to a fixed pool of cars.
//
// Trips are sorted by start time and placed, one by one, on the first car of
// the pool (in configured order) whose last trip has ended. Trips that fit
// nowhere are dropped and reported; the pool is never grown unless
// PoolDynamic is configured. The pass is a first-fit heuristic and makes no
// attempt to minimise drops or balance load between cars.
package assign

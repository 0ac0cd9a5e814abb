// Package location resolves raw position signals (beacons, coordinates) to hospital areas.
package location

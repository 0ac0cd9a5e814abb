// Package waitlist provides department queues that patients join after check-in.
// Positions are 1-based and first-come first-served.
package waitlist

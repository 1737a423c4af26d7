package booking

// Compile-time check that the default service covers the full engine surface.
var _ BookingService = (*DefaultBookingService)(nil)

/*Package litewing provides an unofficial, easy-to-use, standalone API for the LiteWing drone,
including an optical-flow dead-reckoning position-hold autopilot.

Disclaimer

LiteWing is a product of CircuitDigest.  The author(s) of this package is/are in no way affiliated with CircuitDigest
or Bitcraze.  The package has been developed by examining data packets sent to/from the drone, which speaks the
Crazyflie CRTP protocol over Wi-Fi UDP.

Use this package at your own risk.  The author(s) is/are in no way responsible for any damage caused either to or by the
drone when using this software.

Features

The following features have been implemented...
  * Control connection over UDP using CRTP framing
  * Hover and RPYT setpoint commands, plus an emergency stop
  * Velocity estimation from raw optical-flow deltas, with height scaling and smoothing
  * Dead-reckoning position estimation with drift compensation and periodic reset
  * Cascaded (position + velocity) PID position hold with a phased flight profile
  * Live tuning of controller gains and trims by name
  * Enriched telemetry for real-time monitoring, with CSV flight logging
  * A websocket-based web monitor for live telemetry viewing

Concepts

Flight Profile

A position-hold flight runs through fixed phases: takeoff (open-loop climb, drift integration off),
stabilizing (corrections active, hold target just set), hover (corrections plus periodic origin reset),
then landing.  EmergencyStop() cuts the motors from any phase.  The drone's flow sensor is mounted
rotated relative to the body frame, so controller outputs are deliberately cross-mapped onto the
outbound hover commands; this mapping matches the airframe and must not be "corrected".

Funcs vs. Channels

Certain functionality is made available in two forms: single-shot function calls and streaming (channel) data flows.
Eg. GetTelemetry() vs. StreamTelemetry().

Use whichever paradigm you prefer, but be aware that the channel-based calls should return immediately (the channels are buffered)
whereas the function-based options could conceivably cause your application to pause very briefly if the drone is very busy.

Debug Mode

With DebugMode set, the full pipeline - sensing, estimation, control, logging - runs normally but no
setpoints are sent, so the whole controller can be exercised on the bench with the props off.

*/
package litewing

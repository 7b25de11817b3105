// Package link implements the host link of the robot.
package link

// The host sends single byte commands, some followed by fixed width
// decimal fields, e.g. 'v' + 4 digits setpoint + 4 digits Kp + 4 digits Ki,
// each field being the value * 100. Commands are decoded one byte at a
// time by Parser so a command split across reads is resumed on the next
// scheduler pass.
//
// The robot streams telemetry as text frames:
//
//	<S>{index},{time_ms},{left_pos},{right_pos},{left_vel},{right_vel}<E>\n
//
// and terminates a stream with <S>#END<E>\n. Anything outside the
// delimiters is noise and discarded by the scanners.
//
// Producer: robot (frames), host (commands)
// Consumer: host (frames), robot (commands)

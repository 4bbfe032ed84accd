package model

import "testing"

func TestCombinePriority(t *testing.T) {
	cases := []struct {
		name    string
		machine MachineState
		cycle   CycleState
		motion  MotionState
		hold    HoldState
		want    CombinedState
	}{
		{"panic beats everything", MachinePanic, CycleHoming, MotionRun2, HoldHeld, StatePanic},
		{"shutdown beats alarm ordering", MachineShutdown, CycleOff, MotionStop, HoldOff, StateShutdown},
		{"alarm reported directly", MachineAlarm, CycleOff, MotionStop, HoldOff, StateAlarm},
		{"hold beats an active homing cycle", MachineReady, CycleHoming, MotionRun2, HoldRequested, StateHold},
		{"homing cycle reported when not held", MachineReady, CycleHoming, MotionRun2, HoldOff, StateHoming},
		{"probe cycle reported when not held", MachineReady, CycleProbe, MotionStop, HoldOff, StateProbe},
		{"jog cycle reported when not held", MachineReady, CycleJog, MotionStop, HoldOff, StateJog},
		{"plain cycle reported when not held", MachineReady, CycleCycle, MotionStop, HoldOff, StateCycle},
		{"running with no cycle", MachineReady, CycleOff, MotionRun2, HoldOff, StateRun},
		{"idle ready", MachineReady, CycleOff, MotionStop, HoldOff, StateReady},
		{"initializing reported directly", MachineInitializing, CycleOff, MotionStop, HoldOff, StateInitializing},
		{"program stop reported directly", MachineProgramStop, CycleOff, MotionStop, HoldOff, StateProgramStop},
		{"program end reported directly", MachineProgramEnd, CycleOff, MotionStop, HoldOff, StateProgramEnd},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Combine(tc.machine, tc.cycle, tc.motion, tc.hold); got != tc.want {
				t.Errorf("Combine(%v,%v,%v,%v): got %v, want %v",
					tc.machine, tc.cycle, tc.motion, tc.hold, got, tc.want)
			}
		})
	}
}

// Package neatracer is a top-down racing sandbox for NEAT drivers.
//
// Cars are rectangles with a fan of sensor rays. Each ray flies out from
// its car until it hits the track border, and the distances it reports are
// the inputs of an evolved feed-forward network whose outputs steer the car.
// A generation races together on one track; a car earns a little for every
// tick it stays on the road and a lot for reaching the finish line.
//
// The module is split into:
//
//	geom      vectors and the heading convention shared by everything
//	mask      pixel occupancy masks and overlap tests
//	car       bodies, sensor rays and the manual and path-following motions
//	track     YAML track definitions built into border and finish masks
//	sim       the training episode, the interactive game and the tick loop
//	neat      the NEAT engine: genomes, speciation, reproduction, checkpoints
//	neat/nn   feed-forward networks built from genomes
//	trainer   races a population generation by generation
//	render    the drawing boundary, with term (tcell) and window (ebiten) views
//
// Basic usage:
//
//	cfg, err := sim.LoadConfig("configs/racing.ini")
//	if err != nil {
//		log.Fatal(err)
//	}
//	neatCfg, err := neat.LoadConfig("configs/neat-feedforward.ini")
//	if err != nil {
//		log.Fatal(err)
//	}
//	tr, err := track.Default()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	t, err := trainer.New(cfg, neatCfg, tr, logger, trainer.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	best, err := t.Run(ctx, 50)
//
// examples/racing wraps this in a command with train, replay and play modes.
package neatracer

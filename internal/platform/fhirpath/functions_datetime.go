package fhirpath

// fnNow, fnToday and fnTimeOfDay are the standalone (no-receiver) datetime
// functions supplementing the teacher's toDate/toDateTime pair (fhirpath.go)
// with the "current instant" accessors spec.md's original distillation
// omitted but which every other FHIRPath implementation in the retrieval
// pack provides. They read Context.Now(), a value fixed once per Evaluate
// call so repeated calls within one expression observe the same instant.

func fnNow(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("now", args, 0, 0); err != nil {
		return nil, err
	}
	now := ctx.Now()
	now.Precision = PrecMillisecond
	return Single(NewDateTime(now)), nil
}

func fnToday(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("today", args, 0, 0); err != nil {
		return nil, err
	}
	now := ctx.Now()
	now.Precision = PrecDay
	return Single(NewDate(now)), nil
}

func fnTimeOfDay(ctx *Context, focus Collection, args []*astNode) (Collection, error) {
	if err := requireArity("timeOfDay", args, 0, 0); err != nil {
		return nil, err
	}
	now := ctx.Now()
	t := Temporal{
		Hour: now.Hour, Minute: now.Minute, Second: now.Second, Ms: now.Ms,
		Precision: PrecMillisecond, HasTZ: now.HasTZ, TZOffsetSeconds: now.TZOffsetSeconds,
	}
	return Single(NewTime(t)), nil
}

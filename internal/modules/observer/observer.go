package observer

type Observer interface {
	Update(event string, data interface{})
}

type Func func(event string, data interface{})

func (f Func) Update(event string, data interface{}) {
	f(event, data)
}

// Observers fans one event out to every registered observer in order.
type Observers []Observer

func (o Observers) Notify(event string, data interface{}) {
	for _, ob := range o {
		if ob != nil {
			ob.Update(event, data)
		}
	}
}

// Package eventbus 实现进程内事件总线
//
// 事件按 Go 类型路由：订阅和获取发射器时传入事件类型的指针，
// 发射时传入事件值。发射永不阻塞，订阅者缓冲区满时事件被丢弃并计数。
//
// 名称服务用它发布 types.EvtNameChanged，日志记录和外部钩子通过订阅接收。
//
//	em, _ := bus.Emitter(new(types.EvtNameChanged))
//	sub, _ := bus.Subscribe(new(types.EvtNameChanged), pkgif.BufSize(64))
//	em.Emit(types.EvtNameChanged{Op: types.OpAdd})
//	evt := (<-sub.Out()).(types.EvtNameChanged)
package eventbus
